package auth

import (
	"ucrauth/lib/telemetry"
)

var tracer = telemetry.Tracer("ucrauth.lib.auth")
var meter = telemetry.Meter("ucrauth.lib.auth")

var loginCounter, _ = meter.Int64Counter(
	"auth.login_exchanges",
)
