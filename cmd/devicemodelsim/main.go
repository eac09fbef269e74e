// Command devicemodelsim boots a single simulated charging station's
// OCPP 2.0.1 Device Model: it opens the station's ConfigurationKey
// Store, runs the Variable Manager's startup self-check, starts the
// debug control server, and (optionally) a demo scenario goroutine
// that mutates a few runtime variables so the control server's report
// dumps show changing data over time.
//
// Grounded on the teacher's main.go: same flag-parsing shape
// (-cp/-cs/-db/-control-port here become -station/-db/-control-port),
// the same badger.Open + defer Close() + signal-channel shutdown
// dance, and a boot-time key-seeding step (there: ad hoc
// SetIfNotExistsTX calls; here: ValidatePersistentMappings, §4.5.3).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ahoi-energy/devicemodelsim/internal/configstore"
	"github.com/ahoi-energy/devicemodelsim/internal/control"
	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
	"github.com/ahoi-energy/devicemodelsim/internal/seed"
	"github.com/ahoi-energy/devicemodelsim/internal/station"
)

const appVersion = "1.0.0"

func init() {
	time.Local = time.UTC
}

func main() {
	var (
		stationID   string
		dbPath      string
		controlPort string
		evseCount   int
		connCount   int
		demo        bool
		seedPath    string
		showVersion bool
	)

	flag.StringVar(&stationID, "station", "", "station id")
	flag.StringVar(&dbPath, "db", "db", "configuration key store path")
	flag.StringVar(&controlPort, "control-port", "", "control server port (default: random)")
	flag.IntVar(&evseCount, "evses", 1, "number of simulated EVSEs")
	flag.IntVar(&connCount, "connectors", 1, "number of connectors per EVSE")
	flag.BoolVar(&demo, "demo", false, "run a background demo scenario mutating sampled-data variables")
	flag.StringVar(&seedPath, "seed", "", "YAML registry-overlay file applied before the startup self-check")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Parse()

	if showVersion {
		fmt.Println("devicemodelsim version", appVersion)
		os.Exit(0)
	}
	if stationID == "" {
		fmt.Println("missing station id")
		flag.Usage()
		os.Exit(1)
	}

	appLogger := log.WithField("station", stationID)

	storeDir := filepath.Join(dbPath, stationID)
	store, err := configstore.Open(storeDir)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to open configuration key store")
	}
	defer store.Close()

	st := station.New(stationID, store, evseCount, connCount)

	if err := seed.Identity(st); err != nil {
		appLogger.WithError(err).Warn("failed to seed identity variables")
	}

	if seedPath != "" {
		overlay, err := seed.LoadOverlay(seedPath)
		if err != nil {
			appLogger.WithError(err).Fatal("failed to load registry overlay")
		}
		if err := overlay.Apply(st); err != nil {
			appLogger.WithError(err).Fatal("failed to apply registry overlay")
		}
	}

	manager := devicemodel.NewManager(devicemodel.DefaultRegistry())
	manager.ValidatePersistentMappings(st)
	seed.ConnectorTypes(manager, st)

	service := devicemodel.NewService(manager)

	controlServer := control.New(service, map[string]devicemodel.StationContext{stationID: st})
	addr, err := controlServer.Start(controlPort)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to start control server")
	}
	appLogger = appLogger.WithField("control_addr", addr)
	appLogger.Info("devicemodelsim started")

	var demoStop chan struct{}
	if demo {
		demoStop = runDemoScenario(manager, st)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	appLogger.Info("shutting down")
	if demoStop != nil {
		close(demoStop)
	}
	st.Stop()
}

// runDemoScenario is the supplemented "demo charging scenario" feature
// (SPEC_FULL.md §12): a background goroutine periodically calling
// SetVariable through the public contract, mirroring the teacher's
// charging_scenario.go periodic meter-value mutation via IncrementKeyTX
// but going through C5's validation path instead of a raw key write.
func runDemoScenario(manager *devicemodel.Manager, st devicemodel.StationContext) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				interval := 5 + rand.Intn(55)
				manager.SetVariable(st, devicemodel.SetVariableData{
					Component:      devicemodel.Component{Name: devicemodel.ComponentSampledDataCtrlr},
					Variable:       devicemodel.Variable{Name: "TxUpdatedInterval"},
					AttributeType:  devicemodel.AttributeActual,
					AttributeValue: fmt.Sprintf("%d", interval),
				})
			}
		}
	}()
	return stop
}
