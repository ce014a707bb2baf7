package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "ATU Queue Kiosk",
    "description": "Ticket issuance, desk routing and session state for the admissions kiosk",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/api/config": {"get": {"tags": ["config"], "summary": "Effective routing config", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets": {
      "get": {"tags": ["tickets"], "summary": "Ticket history", "responses": {"200": {"description": "OK"}}},
      "post": {"tags": ["tickets"], "summary": "Issue ticket for any service", "responses": {"201": {"description": "Created"}, "403": {"description": "Service disabled"}, "409": {"description": "No desk available"}}}
    },
    "/api/tickets/consultation": {"post": {"tags": ["tickets"], "summary": "Issue consultation ticket", "responses": {"201": {"description": "Created"}, "409": {"description": "No desk available"}}}},
    "/api/tickets/admission": {"post": {"tags": ["tickets"], "summary": "Issue admission ticket", "responses": {"201": {"description": "Created"}, "409": {"description": "No desk available"}}}},
    "/api/tickets/last": {"get": {"tags": ["tickets"], "summary": "Last issued ticket", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets/{number}": {"get": {"tags": ["tickets"], "summary": "Ticket by number", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
    "/api/tickets/{number}/forward": {"post": {"tags": ["tickets"], "summary": "Forward ticket to the remote API", "responses": {"200": {"description": "OK"}, "502": {"description": "Remote error"}}}},
    "/api/tickets/{number}/status": {"post": {"tags": ["admin"], "summary": "Change ticket status", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets/{number}/done": {"post": {"tags": ["admin"], "summary": "Mark ticket done", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets/{number}/cancel": {"post": {"tags": ["admin"], "summary": "Cancel ticket", "responses": {"200": {"description": "OK"}}}},
    "/api/queue/pending": {"get": {"tags": ["queue"], "summary": "Pending tickets for a desk, oldest first", "responses": {"200": {"description": "OK"}}}},
    "/api/queue/next": {"post": {"tags": ["queue"], "summary": "Call the next pending ticket for a desk", "responses": {"200": {"description": "OK"}, "404": {"description": "Queue empty"}, "409": {"description": "Desk busy"}}}},
    "/api/queue/board": {"get": {"tags": ["queue"], "summary": "Called ticket per desk", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets/export": {"get": {"tags": ["admin"], "summary": "Export ticket history as xlsx", "responses": {"200": {"description": "OK"}}}},
    "/api/sequences/{prefix}": {"get": {"tags": ["admin"], "summary": "Last issued number for a prefix", "responses": {"200": {"description": "OK"}}}},
    "/api/session": {
      "get": {"tags": ["session"], "summary": "Current kiosk session", "responses": {"200": {"description": "OK"}}},
      "patch": {"tags": ["session"], "summary": "Update session fields", "responses": {"200": {"description": "OK"}}},
      "delete": {"tags": ["session"], "summary": "End the visit", "responses": {"200": {"description": "OK"}}}
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
