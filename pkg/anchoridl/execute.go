package anchoridl

import "github.com/osvaldoandrade/anchoridl/internal/cli"

// Execute runs the anchoridl CLI entrypoint.
func Execute() int {
	return cli.Execute()
}
