package configs

import (
	"net/url"
	"time"
)

// Transfer configures the client for the external asset-transfer gateway.
type Transfer struct {
	// Addr is the base URL of the gateway API.
	Addr url.URL `env:"ADDRESS" envDefault:"http://localhost:9090"`
	// CustodialAccount is this system's own account on the external ledger.
	// Funds are held in trust here between campaign funding and payout.
	CustodialAccount string `env:"CUSTODIAL_ACCOUNT" envDefault:"soulboard-custody"`
	// ExpectedFee is pinned on every transfer so an upstream fee change is
	// detected instead of silently charged.
	ExpectedFee int64 `env:"EXPECTED_FEE" envDefault:"10000"`
	// Timeout bounds a single gateway call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}
