package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sweeney/ledclock/internal/config"
	"github.com/sweeney/ledclock/internal/gpio"
	"github.com/sweeney/ledclock/internal/logic"
	"github.com/sweeney/ledclock/internal/status"
)

func printCatalog(w io.Writer, dates string, capacity int) {
	cat, n := logic.ParseCatalog(dates, capacity)
	fmt.Fprintf(w, "%d entries\n", n)
	for i, o := range cat {
		fmt.Fprintf(w, "%2d  %-7s %s\n", i, o, o.Kind)
	}
}

func printState(w io.Writer, cfg config.Config, levels gpio.Levels) {
	for i, s := range cfg.Slots {
		pressed := i < len(levels.Triggers) && levels.Triggers[i]
		trigger := "unwired"
		if gpio.Wired(s.TriggerPin) {
			trigger = fmt.Sprintf("pin %d %s", s.TriggerPin, pressedString(pressed))
		}
		cat, n := logic.SlotCatalog(s.Dates, s.Capacity)
		if n == 0 {
			fmt.Fprintf(w, "%s: no entries, trigger %s\n", s.Name, trigger)
			continue
		}
		fmt.Fprintf(w, "%s: vars %d..%d, trigger %s\n", s.Name, s.BaseVar, s.BaseVar+n-1, trigger)
		for j, o := range cat {
			fmt.Fprintf(w, "  %2d  %s\n", j, o)
		}
	}
	disable := "unwired"
	if gpio.Wired(cfg.GPIO.DisablePin) {
		disable = fmt.Sprintf("pin %d %s", cfg.GPIO.DisablePin, pressedString(levels.Disable))
	}
	fmt.Fprintf(w, "disable: %s\n", disable)
}

func pressedString(on bool) string {
	if on {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
