package banner

import (
	"fmt"

	"civicdesk/pkg/config"
)

const banner = `
 ██████╗██╗██╗   ██╗██╗ ██████╗██████╗ ███████╗███████╗██╗  ██╗
██╔════╝██║██║   ██║██║██╔════╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝
██║     ██║██║   ██║██║██║     ██║  ██║█████╗  ███████╗█████╔╝
██║     ██║╚██╗ ██╔╝██║██║     ██║  ██║██╔══╝  ╚════██║██╔═██╗
╚██████╗██║ ╚████╔╝ ██║╚██████╗██████╔╝███████╗███████║██║  ██╗
 ╚═════╝╚═╝  ╚═══╝  ╚═╝ ╚═════╝╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`

// PrintWithEff prints the startup banner with the effective config.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config sources: %s\n", src)
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /v1/notifications - List your notifications (paged)")
	fmt.Println("POST /v1/reports - Submit an incident report")
	fmt.Println("GET  /ws?token=<jwt> - Real-time notification socket")
	fmt.Println("GET  /metrics - Prometheus metrics; /docs - API docs")
	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper storage path (--db)")
	fmt.Println("Set CIVICDESK_JWT_SECRET to a strong random value")
}
