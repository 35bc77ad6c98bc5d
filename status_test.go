// go-st7540
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-st7540.
//
// go-st7540 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-st7540 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-st7540; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package st7540

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode_Frame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code StatusCode
		want string
	}{
		{code: StatusSetupComplete, want: "#101\r\n"},
		{code: StatusModemBooted, want: "#102\r\n"},
		{code: StatusWaitingForModemBoot, want: "#103\r\n"},
		{code: StatusControlRegisterSet, want: "#104\r\n"},
		{code: StatusNoResponse, want: "#105\r\n"},
		{code: StatusNoMessage, want: "#106\r\n"},
		{code: StatusAck, want: "#107\r\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code.Description(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.code.Frame()))
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	code, ok := ParseStatus("#106\r\n")
	assert.True(t, ok)
	assert.Equal(t, StatusNoMessage, code)

	code, ok = ParseStatus("noise #104 noise")
	assert.True(t, ok)
	assert.Equal(t, StatusControlRegisterSet, code)

	_, ok = ParseStatus("hello")
	assert.False(t, ok)
}

func TestRecordingReporter(t *testing.T) {
	t.Parallel()

	r := &RecordingReporter{}
	assert.NoError(t, r.ReportStatus(StatusAck))
	assert.NoError(t, StatusReporterFunc(r.ReportStatus).ReportStatus(StatusNoMessage))
	assert.Equal(t, []StatusCode{StatusAck, StatusNoMessage}, r.Codes())

	r.Reset()
	assert.Empty(t, r.Codes())
}
