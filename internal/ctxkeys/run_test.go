// uebuild is a configuration-driven Unreal Engine build orchestrator.
// Copyright (C) 2025 Matthew Burns
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ctxkeys

import (
	"context"
	"testing"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.TODO(), "abc123")
	if got := RunID(ctx); got != "abc123" {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestRunIDAbsent(t *testing.T) {
	if got := RunID(context.TODO()); got != "" {
		t.Fatalf("expected empty run id; got %s", got)
	}
	//nolint:staticcheck // nil context is tolerated
	if got := RunID(nil); got != "" {
		t.Fatalf("expected empty run id for nil context; got %s", got)
	}
	if got := RunID(WithRunID(nil, "x")); got != "x" { //nolint:staticcheck
		t.Fatalf("expected id on nil parent; got %s", got)
	}
}
