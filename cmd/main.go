package main

import "github.com/mkravets/todo-api/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.MustListenAndServeHTTP()
}
