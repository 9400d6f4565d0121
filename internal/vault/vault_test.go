// internal/vault/vault_test.go
//
// Reference parsing and resolution.  No Vault server is contacted.
//
// Run: go test ./internal/vault -v

package vault

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeKV struct {
	path, key string
	ttl       time.Duration
	val       string
	err       error
}

func (f *fakeKV) GetKV(_ context.Context, p, k string, ttl time.Duration) (string, error) {
	f.path, f.key, f.ttl = p, k, ttl
	return f.val, f.err
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("vault:secret/gatehouse/db#password")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if ref.Path != "secret/gatehouse/db" || ref.Key != "password" {
		t.Fatalf("ref = %+v", ref)
	}

	for _, bad := range []string{
		"secret/gatehouse/db#password",
		"vault:secret/gatehouse/db",
		"vault:secret/gatehouse/db#",
		"vault:secret#password",
		"vault:#password",
	} {
		if _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) accepted", bad)
		}
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, nil, "plain-password", time.Minute)
	if err != nil || got != "plain-password" {
		t.Fatalf("plain: %q, %v", got, err)
	}

	kv := &fakeKV{val: "s3cret"}
	got, err = Resolve(ctx, kv, "vault:secret/gatehouse/db#password", time.Minute)
	if err != nil || got != "s3cret" {
		t.Fatalf("ref: %q, %v", got, err)
	}
	if kv.path != "secret/gatehouse/db" || kv.key != "password" || kv.ttl != time.Minute {
		t.Fatalf("GetKV called with %+v", kv)
	}

	if _, err := Resolve(ctx, nil, "vault:secret/gatehouse/db#password", 0); err == nil {
		t.Fatal("expected error without a client")
	}

	kv.err = errors.New("permission denied")
	if _, err := Resolve(ctx, kv, "vault:secret/gatehouse/db#password", 0); err == nil {
		t.Fatal("expected GetKV error to surface")
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/a/b")
	if m != "secret" || r != "a/b" {
		t.Fatalf("got %q %q", m, r)
	}
	if m, r := splitMount(""); m != "" || r != "" {
		t.Fatalf("empty: %q %q", m, r)
	}
}
