package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryAppend_DoesNotAliasInput(t *testing.T) {
	in := make(History, 1, 4)
	in[0] = ChatMessage{Role: RoleUser, Content: "first"}

	out := in.Append(ChatMessage{Role: RoleAssistant, Content: "reply"})
	out[0].Content = "changed"

	require.Equal(t, "first", in[0].Content)
	require.Len(t, out, 2)
	require.Equal(t, RoleAssistant, out[1].Role)
}

func TestHistoryAppend_NilHistory(t *testing.T) {
	var h History
	out := h.Append(ChatMessage{Role: RoleUser, Content: "hi"})
	require.Equal(t, History{{Role: RoleUser, Content: "hi"}}, out)
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole(RoleUser))
	require.True(t, ValidRole(RoleAssistant))
	require.False(t, ValidRole("system"))
	require.False(t, ValidRole(""))
}
