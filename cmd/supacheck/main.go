package main

import "github.com/streakerapp/supacheck/internal/cli"

func main() {
	cli.Execute()
}
