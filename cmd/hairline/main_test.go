package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/app"
	_ "github.com/hairline-erp/hairline/internal/testing/guard"
)

func TestMainReturnsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
