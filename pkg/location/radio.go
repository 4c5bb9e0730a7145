package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// runTool executes an optional system tool and returns its stdout.
func runTool(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}
	return string(out), nil
}

// getWiFiAccessPoints lists visible access points via nmcli.
func getWiFiAccessPoints(ctx context.Context) ([]maps.WiFiAccessPoint, error) {
	out, err := runTool(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseNmcliAccessPoints(out), nil
}

// parseNmcliAccessPoints parses terse nmcli output where colons inside the BSSID are
// escaped, e.g. `AA\:BB\:CC\:DD\:EE\:FF:72`.
func parseNmcliAccessPoints(out string) []maps.WiFiAccessPoint {
	var aps []maps.WiFiAccessPoint
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), `\:`, "-")
		bssid, signal, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		mac := strings.ReplaceAll(strings.TrimSpace(bssid), "-", ":")
		if !isValidMAC(mac) {
			continue
		}
		strength, err := strconv.Atoi(strings.TrimSpace(signal))
		if err != nil {
			continue
		}
		aps = append(aps, maps.WiFiAccessPoint{
			MACAddress:     mac,
			SignalStrength: float64(strength),
		})
	}
	return aps
}

// getCellTowers reads the serving cell of the given modem via mmcli.
func getCellTowers(ctx context.Context, modemIndex int) ([]maps.CellTower, error) {
	out, err := runTool(ctx, "mmcli", "-m", strconv.Itoa(modemIndex), "--output-keyvalue")
	if err != nil {
		return nil, err
	}
	return parseMmcliCellTower(out)
}

func parseMmcliCellTower(out string) ([]maps.CellTower, error) {
	var tower maps.CellTower
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "modem.3gpp.operator-code":
			// MCC is always three digits, the MNC two or three.
			if len(value) >= 5 {
				tower.MobileCountryCode, _ = strconv.Atoi(value[:3])
				tower.MobileNetworkCode, _ = strconv.Atoi(value[3:])
			}
		case "modem.3gpp.location-area-code", "modem.3gpp.tracking-area-code":
			if lac, err := strconv.ParseInt(value, 16, 32); err == nil && lac != 0 {
				tower.LocationAreaCode = int(lac)
			}
		case "modem.3gpp.cell-id":
			if cid, err := strconv.ParseInt(value, 16, 64); err == nil {
				tower.CellID = int(cid)
			}
		}
	}

	if tower.MobileCountryCode == 0 || tower.CellID == 0 {
		return nil, errors.New("incomplete cell tower data")
	}
	return []maps.CellTower{tower}, nil
}

// isValidMAC checks for the 00:14:22:01:23:45 form.
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
