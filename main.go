package main

import "github.com/killallgit/diagram-annotator/cmd"

// @title           Diagram Annotator API
// @version         1.0
// @description     Collaborative review of generated code diagrams. Annotators flag diagram defects on private copies of each sample; admins upload datasets, manage users and export results.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Session token as "Bearer <token>"; the session cookie works too
func main() {
	cmd.Execute()
}
