package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/sernyl/doselog-api/catalog/entities"
)

func TestNewContainerEmpty(t *testing.T) {
	c := NewContainer()

	if got := c.GetTierEntries(); len(got) != 0 {
		t.Errorf("GetTierEntries = %v, want empty", got)
	}
	if got := c.GetTierMap(); len(got) != 0 {
		t.Errorf("GetTierMap = %v, want empty", got)
	}
	if got := c.GetSafetyEntries(); len(got) != 0 {
		t.Errorf("GetSafetyEntries = %v, want empty", got)
	}
	if !c.GetLastUpdated().IsZero() {
		t.Error("GetLastUpdated should be zero before any update")
	}
	if c.IsUpdating() {
		t.Error("new container should not be updating")
	}
}

func TestContainerUpdateData(t *testing.T) {
	c := NewContainer()

	entry := entities.TierEntry{Drug: "caffeine", Method: "oral"}
	tierMap := map[string]entities.TierEntry{entities.TierKey("caffeine", "oral"): entry}
	safety := []entities.SafetyEntry{{Name: "Caffeine"}}

	before := time.Now()
	c.UpdateData([]entities.TierEntry{entry}, tierMap, safety)

	if got := c.GetTierEntries(); len(got) != 1 || got[0].Drug != "caffeine" {
		t.Errorf("GetTierEntries = %v", got)
	}
	if _, ok := c.GetTierMap()[entities.TierKey("caffeine", "oral")]; !ok {
		t.Error("tier map missing the stored key")
	}
	if got := c.GetSafetyEntries(); len(got) != 1 || got[0].Name != "Caffeine" {
		t.Errorf("GetSafetyEntries = %v", got)
	}
	if c.GetLastUpdated().Before(before) {
		t.Error("GetLastUpdated not stamped by UpdateData")
	}
}

func TestContainerBeginEndUpdate(t *testing.T) {
	c := NewContainer()

	if !c.BeginUpdate() {
		t.Fatal("first BeginUpdate should succeed")
	}
	if c.BeginUpdate() {
		t.Error("concurrent BeginUpdate should fail")
	}
	if !c.IsUpdating() {
		t.Error("IsUpdating should be true mid-update")
	}

	c.EndUpdate()
	if c.IsUpdating() {
		t.Error("IsUpdating should be false after EndUpdate")
	}
	if !c.BeginUpdate() {
		t.Error("BeginUpdate should succeed again after EndUpdate")
	}
}

func TestContainerServerStartTime(t *testing.T) {
	c := NewContainer()

	if !c.GetServerStartTime().IsZero() {
		t.Error("start time should be zero before being set")
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetServerStartTime(start)
	if !c.GetServerStartTime().Equal(start) {
		t.Errorf("GetServerStartTime = %v, want %v", c.GetServerStartTime(), start)
	}
}

func TestContainerConcurrentAccess(t *testing.T) {
	c := NewContainer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				entry := entities.TierEntry{Drug: "caffeine", Method: "oral"}
				c.UpdateData(
					[]entities.TierEntry{entry},
					map[string]entities.TierEntry{entities.TierKey("caffeine", "oral"): entry},
					[]entities.SafetyEntry{{Name: "Caffeine"}},
				)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.GetTierEntries()
				_ = c.GetTierMap()
				_ = c.GetSafetyEntries()
				_ = c.GetLastUpdated()
			}
		}()
	}
	wg.Wait()
}
