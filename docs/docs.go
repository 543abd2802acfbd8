// Package docs registers the OpenAPI document served under /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@crwn.app"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Sign in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Revoke the current session", "responses": {"204": {"description": "No Content"}}}},
        "/auth/refresh": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Exchange the current token for a new one", "responses": {"200": {"description": "OK"}}}},
        "/auth/session": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "OK"}}}},
        "/features": {"get": {"tags": ["meta"], "summary": "Feature flags", "responses": {"200": {"description": "OK"}}}},
        "/onboard": {"post": {"tags": ["onboarding"], "summary": "Start an onboarding draft", "responses": {"201": {"description": "Created"}}}},
        "/onboard/catalog": {"get": {"tags": ["onboarding"], "summary": "Answer choices for the onboarding steps", "responses": {"200": {"description": "OK"}}}},
        "/onboard/{id}": {"patch": {"tags": ["onboarding"], "summary": "Merge answers into a draft", "responses": {"200": {"description": "OK"}}}},
        "/onboard/{id}/next": {"post": {"tags": ["onboarding"], "summary": "Continue to the next step", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/onboard/{id}/back": {"post": {"tags": ["onboarding"], "summary": "Go back one step", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/user/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user's profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Replace the editable profile fields", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/user/profile/hair": {"put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create or replace the hair profile", "responses": {"200": {"description": "OK"}}}},
        "/user/profile/avatar": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["users"], "summary": "Upload a new avatar", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/user/settings": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Current user's settings", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Change settings", "responses": {"200": {"description": "OK"}}}
        },
        "/user/bookmarks": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Posts the current user saved", "responses": {"200": {"description": "OK"}}}},
        "/user/feedback": {"post": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Send feedback to support", "responses": {"201": {"description": "Created"}}}},
        "/users/{id}": {"get": {"tags": ["users"], "summary": "A user's public profile", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{id}/posts": {"get": {"tags": ["posts"], "summary": "A user's posts, newest first", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/follow": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Follow a user", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Unfollow a user", "responses": {"204": {"description": "No Content"}}}
        },
        "/stylists": {"get": {"tags": ["users"], "summary": "Stylist directory", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/posts": {
            "get": {"tags": ["posts"], "summary": "Public feed, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["posts"], "summary": "Create a post", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/posts/{id}": {
            "get": {"tags": ["posts"], "summary": "One post", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Delete an own post", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/posts/{id}/like": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Like a post", "responses": {"200": {"description": "OK"}}}},
        "/posts/{id}/bookmark": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Save a post", "responses": {"200": {"description": "OK"}}}},
        "/notifications": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Newest notifications for the current user", "responses": {"200": {"description": "OK"}}}},
        "/notifications/{id}/read": {"post": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark a notification read", "responses": {"204": {"description": "No Content"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "CRWN API",
	Description:      "Hair care community API: onboarding, profiles, posts and notifications",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
