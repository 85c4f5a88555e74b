//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const swaggerTemplate = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "basePath": "{{.BasePath}}",
  "paths": {
    "/status": {"get": {"summary": "Page state", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
    "/overlay": {"post": {"summary": "Start an overlay run", "consumes": ["application/json"], "produces": ["application/json"],
      "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad positions"}, "409": {"description": "Trigger disabled"}, "503": {"description": "Engine not ready"}}}},
    "/clips/{slot}": {"put": {"summary": "Upload a clip", "parameters": [{"name": "slot", "in": "path", "required": true, "type": "string", "enum": ["a", "b"]}],
      "responses": {"200": {"description": "OK"}, "413": {"description": "Too large"}}}},
    "/results/current": {"get": {"summary": "Redirect to the latest result", "responses": {"302": {"description": "Found"}, "404": {"description": "No result yet"}}}},
    "/results/{id}": {"get": {"summary": "Composed clip", "produces": ["video/mp4"], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
      "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
    "/runs": {"get": {"summary": "Run history", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
    "/engine/load": {"post": {"summary": "Retry engine initialization", "responses": {"200": {"description": "OK"}, "503": {"description": "Load failed"}}}}
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Title:            "overlayd API",
	Description:      "HTTP API for composing two video clips into a blended overlay.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
