package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/config"
	"github.com/dmrhub/hytera-bridge/pkg/database"
	"github.com/dmrhub/hytera-bridge/pkg/hytera"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
	"github.com/dmrhub/hytera-bridge/pkg/metrics"
	"github.com/dmrhub/hytera-bridge/pkg/mqtt"
	"github.com/dmrhub/hytera-bridge/pkg/network"
	"github.com/dmrhub/hytera-bridge/pkg/snmp"
	"github.com/dmrhub/hytera-bridge/pkg/web"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hytera-bridge %s (%s, built %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	log.Info("Starting hytera-bridge",
		logger.String("version", version),
		logger.String("config_file", *configFile))
	web.SetVersionInfo(version, commit, buildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Shared session state for the three repeater-facing endpoints
	session := bridge.NewSession(cfg.Hytera.P2PPort, cfg.Hytera.RDACPort, cfg.Hytera.DMRPort)
	collector := metrics.NewCollector()

	// Persistence
	var (
		repeaterRepo *database.RepeaterRepository
		packetRepo   *database.PacketRepository
		db           *database.DB
	)
	if cfg.Database.Enabled {
		db, err = database.NewDB(database.Config{Path: cfg.Database.Path}, log.WithComponent("database"))
		if err != nil {
			log.Error("Failed to initialize database", logger.Error(err))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		repeaterRepo = database.NewRepeaterRepository(db.GetDB())
		packetRepo = database.NewPacketRepository(db.GetDB())
	}

	// MQTT event publisher
	mqttPublisher := mqtt.New(mqtt.Config{
		Enabled:     cfg.MQTT.Enabled,
		Broker:      cfg.MQTT.Broker,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		ClientID:    cfg.MQTT.ClientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		QoS:         cfg.MQTT.QoS,
		Retained:    cfg.MQTT.Retained,
	}, log)
	if cfg.MQTT.Enabled {
		if err := mqttPublisher.Start(ctx); err != nil {
			log.Error("Failed to start MQTT publisher", logger.Error(err))
			os.Exit(1)
		}
		defer mqttPublisher.Stop()
	}

	// Web dashboard
	webServer := web.NewServer(cfg.Web, session, packetRepo, log.WithComponent("web"))
	if cfg.Web.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Web server error", logger.Error(err))
			}
		}()
	}
	hub := webServer.GetHub()

	// Prometheus metrics
	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsServer := metrics.NewPrometheusServer(
				metrics.PrometheusConfig{
					Enabled: cfg.Metrics.Prometheus.Enabled,
					Port:    cfg.Metrics.Prometheus.Port,
					Path:    cfg.Metrics.Prometheus.Path,
				},
				collector,
				session,
				log,
			)
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Prometheus metrics server error", logger.Error(err))
			}
		}()
	}

	// Repeater-facing endpoints
	p2pServer := network.NewP2PServer(cfg.Hytera, session, log)
	if cfg.SNMP.Enabled {
		walker := snmp.NewWalker(cfg.SNMP, session, log)
		p2pServer.WithSNMP(countingWalker{walker, collector})
	}
	p2pServer.OnRegistered(func(addr *net.UDPAddr) {
		collector.RepeaterRegistered()
		hub.BroadcastRegistration(addr.String())
		if err := mqttPublisher.PublishRegistration(mqtt.RegistrationEvent{
			SourceAddr: addr.String(),
			Timestamp:  time.Now(),
		}); err != nil {
			log.Warn("Failed to publish registration event", logger.Error(err))
		}
	})

	rdacServer := network.NewRDACServer(cfg.Hytera, session, log)
	rdacServer.OnReset(func(_ int) {
		collector.HandshakeReset()
	})

	var upstreamOnce sync.Once
	rdacServer.OnCompleted(func(snap bridge.Snapshot) {
		collector.HandshakeCompleted()
		hub.BroadcastIdentity(snap)

		if err := mqttPublisher.PublishIdentity(mqtt.IdentityEvent{
			RepeaterID:   snap.RepeaterID,
			Callsign:     snap.Callsign,
			Firmware:     snap.Firmware,
			Hardware:     snap.Hardware,
			SerialNumber: snap.SerialNumber,
			TXFreq:       snap.TXFreq,
			RXFreq:       snap.RXFreq,
			Timestamp:    time.Now(),
		}); err != nil {
			log.Warn("Failed to publish identity event", logger.Error(err))
		}

		if repeaterRepo != nil {
			if err := repeaterRepo.Upsert(&database.Repeater{
				RepeaterID:   snap.RepeaterID,
				Callsign:     snap.Callsign,
				Firmware:     snap.Firmware,
				Hardware:     snap.Hardware,
				SerialNumber: snap.SerialNumber,
				Mode:         snap.RepeaterMode,
				TXFreq:       snap.TXFreq,
				RXFreq:       snap.RXFreq,
				SNMPName:     snap.SNMPName,
				SNMPLocation: snap.SNMPLocation,
			}); err != nil {
				log.Warn("Failed to persist repeater identity", logger.Error(err))
			}
		}

		// The first completed identification starts the upstream link
		if cfg.Homebrew.Enabled {
			upstreamOnce.Do(func() {
				client := network.NewClient(cfg.Homebrew, snap, log)
				client.OnConnected(func() {
					collector.UpstreamConnected()
					hub.BroadcastUpstreamState(true, client.RepeaterID())
					if err := mqttPublisher.PublishUpstream(mqtt.UpstreamEvent{
						RepeaterID: client.RepeaterID(),
						Connected:  true,
						Timestamp:  time.Now(),
					}); err != nil {
						log.Warn("Failed to publish upstream event", logger.Error(err))
					}
				})
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := client.Start(ctx); err != nil && err != context.Canceled {
						log.Error("Upstream client error", logger.Error(err))
					}
					if collector.IsUpstreamConnected() {
						collector.UpstreamDisconnected()
						hub.BroadcastUpstreamState(false, client.RepeaterID())
					}
				}()
			})
		}
	})

	dmrServer := network.NewDMRServer(cfg.Hytera, session, log)
	dmrServer.Observe(func(kind hytera.Kind, _ hytera.Packet, data []byte, addr *net.UDPAddr) {
		collector.KindObserved(kind.String())

		source := ""
		if addr != nil {
			source = addr.String()
		}
		hub.BroadcastPacket(kind.String(), len(data), source)

		if err := mqttPublisher.PublishTraffic(mqtt.TrafficEvent{
			Kind:       kind.String(),
			Size:       len(data),
			SourceAddr: source,
			Timestamp:  time.Now(),
		}); err != nil {
			log.Warn("Failed to publish traffic event", logger.Error(err))
		}

		if packetRepo != nil {
			if err := packetRepo.Create(&database.PacketRecord{
				RepeaterID: session.RepeaterID(),
				Kind:       kind.String(),
				Size:       len(data),
				SourceAddr: source,
			}); err != nil {
				log.Warn("Failed to persist packet record", logger.Error(err))
			}
		}
	})

	for name, srv := range map[string]interface {
		Start(ctx context.Context) error
	}{
		"p2p":  p2pServer,
		"rdac": rdacServer,
		"dmr":  dmrServer,
	} {
		name, srv := name, srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Endpoint server error",
					logger.String("endpoint", name), logger.Error(err))
			}
		}()
	}

	log.Info("hytera-bridge initialized",
		logger.String("server_name", cfg.Server.Name),
		logger.String("bind", cfg.Hytera.IP),
		logger.Int("p2p_port", cfg.Hytera.P2PPort),
		logger.Int("rdac_port", cfg.Hytera.RDACPort),
		logger.Int("dmr_port", cfg.Hytera.DMRPort))

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.String("signal", sig.String()))

	// Announce the disconnect before tearing the listeners down
	p2pServer.Disconnect()
	collector.RepeaterDisconnected()
	cancel()
	wg.Wait()

	log.Info("hytera-bridge stopped")
}

// countingWalker feeds discovery outcomes into the metrics collector
type countingWalker struct {
	walker    *snmp.Walker
	collector *metrics.Collector
}

func (w countingWalker) Walk(ctx context.Context, host string) error {
	err := w.walker.Walk(ctx, host)
	w.collector.SNMPWalk(err == nil)
	return err
}
