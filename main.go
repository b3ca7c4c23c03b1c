// Package main Syntra control plane API
//
//	@title			Syntra Control Plane API
//	@version		1.0.0
//	@description	Syntra is a multi-tenant deployment platform. This service is its control plane: it tracks deployment lifecycles across remote execution agents, handles cancellation, rollback and inter-environment promotion, and runs the auto-scaling control loop.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://syntra.dev/support
//	@contact.email	support@syntra.dev
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host			localhost:3000
//	@BasePath		/api/v1
package main

import "github.com/syntra/syntra/internal"

//go:generate swag init --parseDependency --outputTypes go -g ./main.go -o ./internal/server/docs

func main() {
	internal.Run()
}
