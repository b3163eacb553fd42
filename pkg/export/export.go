// Package export writes plans in formats suited to other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/evroute/core/planner"
)

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, p *planner.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// CSVHeader is the first line written by WriteCSV.
var CSVHeader = []string{"record", "index", "kind", "from", "to", "edges", "energy", "seconds", "battery_before", "battery_after"}

// WriteCSV writes one "leg" row per leg followed by one "stop" row per
// recharge. Stop rows carry the station in both from and to.
func WriteCSV(w io.Writer, p *planner.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i, l := range p.Legs {
		rec := []string{
			"leg",
			strconv.Itoa(i),
			string(l.Kind),
			strconv.FormatInt(int64(l.From), 10),
			strconv.FormatInt(int64(l.To), 10),
			strconv.Itoa(len(l.Path)),
			formatFloat(l.Energy),
			formatFloat(l.Seconds),
			"",
			"",
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	for i, s := range p.Stops {
		station := strconv.FormatInt(int64(s.Station), 10)
		rec := []string{
			"stop",
			strconv.Itoa(i),
			"charge",
			station,
			station,
			"0",
			formatFloat(s.Energy),
			formatFloat(s.ChargingSeconds),
			formatFloat(s.BatteryBefore),
			formatFloat(s.BatteryAfter),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
