package wlc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/HomeNetOps/homewatch/internal/session"
	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/internal/testutil"
	"github.com/HomeNetOps/homewatch/pkg/models"
	"go.uber.org/zap"
)

// fakeSession replays canned command output and records lifecycle calls.
type fakeSession struct {
	responses map[string]string
	errors    map[string]error
	executed  []string
	closed    bool
}

func (s *fakeSession) Execute(_ context.Context, command string) (string, error) {
	s.executed = append(s.executed, command)
	if err, ok := s.errors[command]; ok {
		return "", err
	}
	return s.responses[command], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	session    *fakeSession
	connectErr error
}

func (p *fakeProvider) Connect(context.Context, session.Target) (session.Session, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return p.session, nil
}

func newSnapshots(t *testing.T) *store.SnapshotStore {
	t.Helper()
	db := testutil.NewStore(t)
	if err := db.Migrate(context.Background(), "snapshots", store.SnapshotMigrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewSnapshotStore(db.DB())
}

func detailFor(mac, ip string) string {
	return fmt.Sprintf(`Client MAC Address............................... %s
AP Name.......................................... living-AP1815M
Client State..................................... Associated
IP Address....................................... %s
`, mac, ip)
}

func TestCollectSnapshotsClients(t *testing.T) {
	sess := &fakeSession{
		responses: map[string]string{
			cmdClientSummary: summaryOutput,
			fmt.Sprintf(cmdClientDetail, "04:03:d6:d8:57:5f"): detailFor("04:03:d6:d8:57:5f", "192.168.1.107"),
			fmt.Sprintf(cmdClientDetail, "70:ea:1a:84:16:c0"): detailFor("70:ea:1a:84:16:c0", "192.168.1.108"),
		},
	}
	snapshots := newSnapshots(t)

	c := NewCollector(Config{
		Provider:   &fakeProvider{session: sess},
		Snapshots:  snapshots,
		MaxHistory: 10,
	}, zap.NewNop())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !sess.closed {
		t.Error("session was not closed")
	}
	if sess.executed[0] != cmdClientSummary {
		t.Errorf("first command = %q, want %q", sess.executed[0], cmdClientSummary)
	}

	snap, err := snapshots.Latest(context.Background(), SourceKey, DocType)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap == nil {
		t.Fatal("no snapshot written")
	}

	var clients []models.ClientRecord
	if err := json.Unmarshal(snap.Payload, &clients); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	if clients[0].MACAddress != "04:03:D6:D8:57:5F" {
		t.Errorf("MAC = %q, want normalized form", clients[0].MACAddress)
	}
	if clients[1].IPAddress != "192.168.1.108" {
		t.Errorf("second client IP = %q", clients[1].IPAddress)
	}
}

func TestCollectConnectFailureWritesNothing(t *testing.T) {
	snapshots := newSnapshots(t)
	c := NewCollector(Config{
		Provider:   &fakeProvider{connectErr: errors.New("dial tcp: connection refused")},
		Snapshots:  snapshots,
		MaxHistory: 10,
	}, zap.NewNop())

	if err := c.Collect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}

	snap, err := snapshots.Latest(context.Background(), SourceKey, DocType)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap != nil {
		t.Error("failed cycle must not leave a snapshot")
	}
}

func TestCollectDetailFailureDropsOnlyThatClient(t *testing.T) {
	sess := &fakeSession{
		responses: map[string]string{
			cmdClientSummary: summaryOutput,
			fmt.Sprintf(cmdClientDetail, "70:ea:1a:84:16:c0"): detailFor("70:ea:1a:84:16:c0", "192.168.1.108"),
		},
		errors: map[string]error{
			fmt.Sprintf(cmdClientDetail, "04:03:d6:d8:57:5f"): errors.New("client roamed away"),
		},
	}
	snapshots := newSnapshots(t)
	c := NewCollector(Config{
		Provider:   &fakeProvider{session: sess},
		Snapshots:  snapshots,
		MaxHistory: 10,
	}, zap.NewNop())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	snap, err := snapshots.Latest(context.Background(), SourceKey, DocType)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	var clients []models.ClientRecord
	if err := json.Unmarshal(snap.Payload, &clients); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(clients) != 1 || clients[0].MACAddress != "70:EA:1A:84:16:C0" {
		t.Fatalf("expected only the surviving client, got %+v", clients)
	}
}
