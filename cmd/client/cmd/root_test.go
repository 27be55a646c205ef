package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"equilibria/cmd/client/cmd/checkin"
	"equilibria/cmd/client/cmd/sync"
	"equilibria/cmd/client/cmd/wearable"
)

func TestDrainsOnStart(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		want bool
	}{
		{name: "sync", cmd: sync.SyncCmd, want: false},
		{name: "wearable sync", cmd: wearable.SyncCmd, want: true},
		{name: "checkin submit", cmd: checkin.SubmitCmd, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// одноимённые команды различаются по месту в дереве
			assert.Equal(t, tt.want, drainsOnStart(tt.cmd))
		})
	}

	assert.Equal(t, sync.SyncCmd.Name(), wearable.SyncCmd.Name())
}
