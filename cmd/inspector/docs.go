package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           inspector API
// @version         1.0
// @description     HTTP API for image upload and product defect detection.
//
// @contact.name   inspector maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
