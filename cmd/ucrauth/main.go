package main

import (
	"context"
	"ucrauth/cmd/ucrauth/commands"
	"ucrauth/lib/serviceutil"
	"ucrauth/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "ucrauth")
	if err == nil {
		defer tel.Shutdown(context.Background())
	}
	commands.ExecuteContext(ctx)
}
