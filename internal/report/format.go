package report

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}

func formatGbps(bps float64) string {
	return strconv.FormatFloat(bps/1e9, 'f', 3, 64)
}

func formatNS(ns float64) string {
	return time.Duration(ns).String()
}
