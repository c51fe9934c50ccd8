package main

import (
	"github.com/information-sharing-networks/https-app/internal/cli"
	"github.com/information-sharing-networks/https-app/internal/routes"
)

func main() {
	cli.Execute(routes.SetRoutes)
}
