package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/overlayd/docs.go`.
//
// @title           overlayd API
// @version         1.0
// @description     HTTP API for composing two video clips into a blended overlay clip.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
