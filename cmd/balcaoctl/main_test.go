package main

import (
	"bytes"
	"testing"

	"balcao/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	_, err := run("--format", "xml", "dlq", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestDLQ_UnknownQueue(t *testing.T) {
	_, err := run("dlq", "list", "--queue", "emails")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown queue")
}

func TestSeed_RequiresFile(t *testing.T) {
	_, err := run("seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"file" not set`)
}

func TestLoyaltyAudit_RequiresStore(t *testing.T) {
	_, err := run("loyalty", "audit", "--store", "loja-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--store")
}

func TestQueueName(t *testing.T) {
	q, err := queueName("print")
	require.NoError(t, err)
	assert.Equal(t, worker.QueuePrint, q)
}
