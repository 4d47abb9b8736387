package common

import "testing"

func TestFindProgramAddressDeterministic(t *testing.T) {
	programID := BytesToPubkey([]byte("delegation-program-0000000000000"))
	pubkey := BytesToPubkey([]byte("some-delegated-account-pubkey000"))

	addr1, bump1, err := FindDelegationRecordAddress(pubkey, programID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr2, bump2, err := FindDelegationRecordAddress(pubkey, programID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr1 != addr2 || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: (%v,%v) != (%v,%v)", addr1, bump1, addr2, bump2)
	}
}

func TestFindProgramAddressDistinctSeeds(t *testing.T) {
	programID := BytesToPubkey([]byte("delegation-program-0000000000000"))
	pubkeyA := BytesToPubkey([]byte("account-a-aaaaaaaaaaaaaaaaaaaaaaa"))
	pubkeyB := BytesToPubkey([]byte("account-b-bbbbbbbbbbbbbbbbbbbbbbb"))

	recordA, _, err := FindDelegationRecordAddress(pubkeyA, programID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recordB, _, err := FindDelegationRecordAddress(pubkeyB, programID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recordA == recordB {
		t.Fatalf("distinct pubkeys must derive distinct delegation records")
	}

	balanceA, _, err := FindEphemeralBalancePDA(pubkeyA, programID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balanceA == recordA {
		t.Fatalf("delegation-record and ephemeral-balance PDAs must differ for the same key")
	}
}

func TestPubkeyBase58RoundTrip(t *testing.T) {
	var p Pubkey
	for i := range p {
		p[i] = byte(i)
	}
	s := p.String()
	got, err := PubkeyFromBase58(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: got %v want %v", got, p)
	}
}
