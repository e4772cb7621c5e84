package application

import (
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/ztag"
)

// Per-query parse options. The boundary key is the first field p4 prints
// for each record of that command.
var (
	clientsOptions  = ztag.ParseOptions{BoundaryKey: "client"}
	changesOptions  = ztag.ParseOptions{BoundaryKey: "change"}
	describeOptions = ztag.ParseOptions{BoundaryKey: "change", MultiLine: map[string]bool{"desc": true}}
	openedOptions   = ztag.ParseOptions{BoundaryKey: "depotFile"}
	usersOptions    = ztag.ParseOptions{BoundaryKey: "User"}
	clientSpecOpts  = ztag.ParseOptions{BoundaryKey: "Client"}
)

func toWorkspace(rec ztag.Record) model.Workspace {
	return model.Workspace{Name: rec["client"]}
}

// toChange maps a "p4 changes" record. An unparsable change number yields
// zero; an unparsable time yields an empty date.
func toChange(rec ztag.Record) model.Change {
	number, _ := strconv.Atoi(strings.TrimSpace(rec["change"]))
	return model.Change{
		Number: number,
		Date:   unixDate(rec["time"]),
		User:   rec["user"],
		Client: rec["client"],
		Status: rec["status"],
	}
}

func toOpenedFile(rec ztag.Record) model.OpenedFile {
	fields := make(map[string]string, len(rec))
	for k, v := range rec {
		fields[k] = v
	}
	return model.OpenedFile{
		DepotFile: rec["depotFile"],
		User:      rec["user"],
		Client:    rec["client"],
		Action:    rec["action"],
		Fields:    fields,
	}
}

func toUser(rec ztag.Record) model.UserRecord {
	return model.UserRecord{
		User:     rec["User"],
		FullName: rec["FullName"],
		Email:    rec["Email"],
	}
}

// unixDate converts a unix-seconds string to a UTC calendar date.
func unixDate(s string) string {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(time.DateOnly)
}

// viewDepotPaths returns the depot side of every inclusion mapping in a
// client spec record, in View0, View1, ... order. Exclusion mappings ("-")
// are dropped; the overlay marker ("+") is stripped.
func viewDepotPaths(spec ztag.Record) []string {
	var paths []string
	for i := 0; ; i++ {
		line, ok := spec["View"+strconv.Itoa(i)]
		if !ok {
			break
		}

		depot := firstViewToken(line)
		if depot == "" || strings.HasPrefix(depot, "-") {
			continue
		}
		paths = append(paths, strings.TrimPrefix(depot, "+"))
	}
	return paths
}

// firstViewToken returns the left-hand side of a view mapping line. Paths
// containing spaces are double-quoted by p4, and the quotes may enclose a
// leading - or + marker.
func firstViewToken(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	prefix := ""
	if line[0] == '-' || line[0] == '+' {
		prefix, line = line[:1], line[1:]
	}

	if strings.HasPrefix(line, `"`) {
		if end := strings.Index(line[1:], `"`); end >= 0 {
			return prefix + line[1:end+1]
		}
		return prefix + strings.Trim(line, `"`)
	}

	token, _, _ := strings.Cut(line, " ")
	return prefix + token
}
