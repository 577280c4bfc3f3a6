// cmd/main.go
package main

import (
	"optimal-bank-api/app"
)

// @title           Optimal Bank API
// @version         1.0
// @description     Banking API with geolocation-based login fraud detection and PIN-protected withdrawals.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
