package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCmd  string
		wantArgs string
		wantOK   bool
	}{
		{name: "bare command", text: "/start", wantCmd: "start", wantOK: true},
		{name: "command with args", text: "/dice 50", wantCmd: "dice", wantArgs: "50", wantOK: true},
		{name: "multiple args", text: "/withdraw 100 bkash 01712345678", wantCmd: "withdraw", wantArgs: "100 bkash 01712345678", wantOK: true},
		{name: "bot mention stripped", text: "/balance@marpd_bot", wantCmd: "balance", wantOK: true},
		{name: "mention with args", text: "/dice@marpd_bot 50", wantCmd: "dice", wantArgs: "50", wantOK: true},
		{name: "upper case normalized", text: "/DICE 50", wantCmd: "dice", wantArgs: "50", wantOK: true},
		{name: "surrounding whitespace", text: "  /daily  ", wantCmd: "daily", wantOK: true},
		{name: "payment transition command", text: "/confirm_pay_20260829_120000_ab12cd34", wantCmd: "confirm_pay_20260829_120000_ab12cd34", wantOK: true},
		{name: "plain text", text: "hello there", wantOK: false},
		{name: "lone slash", text: "/", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	p := NewCommandParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantCmd, cmd)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}
