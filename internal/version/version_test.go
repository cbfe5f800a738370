// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "survey-dict "+Version) {
		t.Errorf("unexpected info %q", info)
	}
	if !strings.Contains(info, "commit: "+GitCommit) {
		t.Errorf("info %q does not mention the commit", info)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "survey-dict/"+Version {
		t.Errorf("unexpected user agent %q", got)
	}
}
