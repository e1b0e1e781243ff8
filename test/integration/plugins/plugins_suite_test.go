// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

//go:build integration

package plugins_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func TestPluginsIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Plugin Root Sharing Suite")
}
