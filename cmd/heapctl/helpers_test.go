package main

import (
	"bytes"
	"os"
	"testing"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// resetFlags restores every global flag to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	stressSeed = 1
	stressSlots = 1
	stressRequests = 25
	stressMaxRequest = 4096
	stressMaxSize = 64 << 20
	stressSkew = 0
	stressBacking = "memory"
	stressChecks = "on"
	stressTrace = false
	stressRelease = false
	stressLang = "en"
	stressDumpFree = false
	t.Cleanup(func() { verbose, quiet, jsonOut = false, false, false })
}
