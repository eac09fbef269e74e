// Package control starts the simulator's debug HTTP control server: a
// table dump of the registry and the generated base-report inventories,
// plus JSON debug endpoints to drive getVariables/setVariables by hand.
// Grounded on the teacher's startHttpServer (http_server.go): a
// net/http.ServeMux of small anonymous handlers bound to a listener
// whose port is echoed back to the caller, plus a go-pretty table dump
// of the station's key/value state (there: /list-db over Badger; here:
// /registry and /report over the device model).
package control

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

// Server is the control HTTP server. It is told about stations by name
// so a single control port can front several simulated stations.
type Server struct {
	Service  *devicemodel.Service
	Stations map[string]devicemodel.StationContext
}

// New builds a Server. stations maps a station id (as passed in the
// "station" query parameter) to its StationContext.
func New(service *devicemodel.Service, stations map[string]devicemodel.StationContext) *Server {
	return &Server{Service: service, Stations: stations}
}

// Start binds a listener on port ("0" for a random free port, matching
// the teacher's controlPort convention) and serves in the background.
// It returns the bound address.
func (s *Server) Start(port string) (string, error) {
	if port == "" {
		port = "0"
	}
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/registry", s.handleRegistry)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/report.yaml", s.handleReportYAML)
	mux.HandleFunc("/variables/get", s.handleVariablesGet)
	mux.HandleFunc("/variables/set", s.handleVariablesSet)
	mux.HandleFunc("/list", s.handleList)

	go func() {
		if err := http.Serve(listener, mux); err != nil {
			log.WithError(err).Error("control server stopped")
		}
	}()

	addr := listener.Addr().String()
	log.WithField("addr", addr).Info("control server started")
	return addr, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	paths := []string{"/registry", "/report", "/report.yaml", "/variables/get", "/variables/set", "/list"}
	fmt.Fprintln(w, "Available endpoints:")
	for _, p := range paths {
		fmt.Fprintf(w, "\t%s\n", p)
	}
}

func (s *Server) station(r *http.Request) (devicemodel.StationContext, bool) {
	id := r.URL.Query().Get("station")
	if id == "" && len(s.Stations) == 1 {
		for _, st := range s.Stations {
			return st, true
		}
	}
	st, ok := s.Stations[id]
	return st, ok
}

// handleRegistry renders the static registry entries known to the
// Manager, independent of any station's live state.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	entries := s.Service.Manager.RegistryEntries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Component != entries[j].Component {
			return entries[i].Component < entries[j].Component
		}
		return entries[i].Variable < entries[j].Variable
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Component", "Variable", "Instance", "DataType", "Mutability", "Persistence"})
	for _, e := range entries {
		t.AppendRows([]table.Row{
			{e.Component, e.Variable, e.VarInstance, e.DataType, e.Mutability, e.Persistence},
		})
	}
	t.Render()
}

func reportBaseFromQuery(r *http.Request) devicemodel.ReportBase {
	base := r.URL.Query().Get("base")
	if base == "" {
		return devicemodel.ReportConfigurationInventory
	}
	return devicemodel.ReportBase(base)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	st, ok := s.station(r)
	if !ok {
		http.Error(w, "unknown or unspecified station", http.StatusBadRequest)
		return
	}
	base := reportBaseFromQuery(r)

	result := s.Service.HandleGetBaseReport(st, base)
	report := s.Service.Manager.BuildBaseReport(st, base)

	fmt.Fprintf(w, "status: %s (reportId: %s)\n\n", result.Status, result.ReportID)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Component", "Variable", "Attribute", "Value"})
	for _, entry := range report.Entries {
		for _, attr := range entry.Attributes {
			t.AppendRows([]table.Row{
				{componentLabel(entry.Component), variableLabel(entry.Variable), attr.Type, attr.Value},
			})
		}
	}
	t.Render()
}

func (s *Server) handleReportYAML(w http.ResponseWriter, r *http.Request) {
	st, ok := s.station(r)
	if !ok {
		http.Error(w, "unknown or unspecified station", http.StatusBadRequest)
		return
	}
	base := reportBaseFromQuery(r)
	report := s.Service.Manager.BuildBaseReport(st, base)

	b, err := yaml.Marshal(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(b)
}

func componentLabel(c devicemodel.Component) string {
	if c.Instance == "" {
		return string(c.Name)
	}
	return fmt.Sprintf("%s.%s", c.Name, c.Instance)
}

func variableLabel(v devicemodel.Variable) string {
	if v.Instance == "" {
		return v.Name
	}
	return fmt.Sprintf("%s.%s", v.Name, v.Instance)
}

func (s *Server) handleVariablesGet(w http.ResponseWriter, r *http.Request) {
	st, ok := s.station(r)
	if !ok {
		http.Error(w, "unknown or unspecified station", http.StatusBadRequest)
		return
	}
	var reqs []devicemodel.GetVariableData
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := s.Service.GetVariables(st, reqs)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (s *Server) handleVariablesSet(w http.ResponseWriter, r *http.Request) {
	st, ok := s.station(r)
	if !ok {
		http.Error(w, "unknown or unspecified station", http.StatusBadRequest)
		return
	}
	var reqs []devicemodel.SetVariableData
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := s.Service.SetVariables(st, reqs)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
