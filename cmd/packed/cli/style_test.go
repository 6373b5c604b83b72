// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "testing"

func TestStylesDisabledArePlain(t *testing.T) {
	styles := newStyles(false)
	for _, render := range []func(string) string{styles.Header, styles.Failure, styles.Faint} {
		if got := render("a\tb"); got != "a\tb" {
			t.Errorf("disabled style rendered %q", got)
		}
	}
}
