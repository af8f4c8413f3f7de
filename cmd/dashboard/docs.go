package main

//go:generate swag init -g cmd/dashboard/main.go -o docs

// @title           Stockwatch Dashboard API
// @version         0.1.0
// @description     Watchlist sessions, filtered views, and bulk operations.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
