package metrics

import (
	"sync"
	"testing"
)

// TestNewCollector tests creating a new metrics collector
func TestNewCollector(t *testing.T) {
	collector := NewCollector()
	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
}

// TestCollector_RegistrationMetrics tests the registration gauge and counter
func TestCollector_RegistrationMetrics(t *testing.T) {
	collector := NewCollector()

	collector.RepeaterRegistered()
	if !collector.IsRegistered() {
		t.Error("Expected registered gauge to be set")
	}
	if collector.GetRegistrations() != 1 {
		t.Errorf("Expected 1 registration, got %d", collector.GetRegistrations())
	}

	collector.RepeaterDisconnected()
	if collector.IsRegistered() {
		t.Error("Expected registered gauge to be cleared")
	}
	if collector.GetRegistrations() != 1 {
		t.Error("Disconnect must not change the cumulative counter")
	}
}

// TestCollector_KindCounts tests per-kind datagram counting
func TestCollector_KindCounts(t *testing.T) {
	collector := NewCollector()

	collector.KindObserved("HSTRP")
	collector.KindObserved("HSTRP")
	collector.KindObserved("IPSC")

	counts := collector.GetKindCounts()
	if counts["HSTRP"] != 2 {
		t.Errorf("Expected 2 HSTRP datagrams, got %d", counts["HSTRP"])
	}
	if counts["IPSC"] != 1 {
		t.Errorf("Expected 1 IPSC datagram, got %d", counts["IPSC"])
	}

	// returned map is a copy
	counts["HSTRP"] = 100
	if collector.GetKindCounts()["HSTRP"] != 2 {
		t.Error("Expected GetKindCounts to return a copy")
	}
}

// TestCollector_HandshakeMetrics tests handshake counters
func TestCollector_HandshakeMetrics(t *testing.T) {
	collector := NewCollector()

	collector.HandshakeReset()
	collector.HandshakeReset()
	collector.HandshakeCompleted()

	if collector.GetHandshakeResets() != 2 {
		t.Errorf("Expected 2 resets, got %d", collector.GetHandshakeResets())
	}
	if collector.GetHandshakeCompletions() != 1 {
		t.Errorf("Expected 1 completion, got %d", collector.GetHandshakeCompletions())
	}
}

// TestCollector_UpstreamMetrics tests master link metrics
func TestCollector_UpstreamMetrics(t *testing.T) {
	collector := NewCollector()

	collector.UpstreamConnected()
	if !collector.IsUpstreamConnected() {
		t.Error("Expected upstream gauge to be set")
	}
	collector.UpstreamDisconnected()
	if collector.IsUpstreamConnected() {
		t.Error("Expected upstream gauge to be cleared")
	}
	if collector.GetUpstreamLogins() != 1 {
		t.Errorf("Expected 1 login, got %d", collector.GetUpstreamLogins())
	}
}

// TestCollector_SNMPMetrics tests discovery counters
func TestCollector_SNMPMetrics(t *testing.T) {
	collector := NewCollector()

	collector.SNMPWalk(true)
	collector.SNMPWalk(false)

	walks, failures := collector.GetSNMPWalks()
	if walks != 2 || failures != 1 {
		t.Errorf("Expected 2 walks / 1 failure, got %d/%d", walks, failures)
	}
}

// TestCollector_Reset tests resetting all metrics
func TestCollector_Reset(t *testing.T) {
	collector := NewCollector()
	collector.KindObserved("HDAP")
	collector.RepeaterRegistered()
	collector.Reset()

	if len(collector.GetKindCounts()) != 0 {
		t.Error("Expected empty kind counts after reset")
	}
	if collector.IsRegistered() || collector.GetRegistrations() != 0 {
		t.Error("Expected registration metrics cleared after reset")
	}
}

// TestCollector_Concurrency tests concurrent metric updates
func TestCollector_Concurrency(t *testing.T) {
	collector := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.KindObserved("HSTRP")
				collector.HandshakeReset()
			}
		}()
	}
	wg.Wait()

	if collector.GetKindCounts()["HSTRP"] != 800 {
		t.Errorf("Expected 800 HSTRP datagrams, got %d", collector.GetKindCounts()["HSTRP"])
	}
	if collector.GetHandshakeResets() != 800 {
		t.Errorf("Expected 800 resets, got %d", collector.GetHandshakeResets())
	}
}
