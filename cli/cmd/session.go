package cmd

import (
	"context"

	"github.com/ponyo877/lanshare/cli/client"
	"github.com/ponyo877/lanshare/wire"
	"github.com/spf13/viper"
)

// joinSession connects to the server as the configured session, or as a
// fresh one when session_id is unset.
func joinSession(ctx context.Context) (*client.Session, []wire.Message, error) {
	return apiClient.Join(ctx, viper.GetString(sessionIDKey), userAgent)
}
