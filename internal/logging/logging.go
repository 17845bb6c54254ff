// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging wraps logrus the way the teacher's auth package wraps
// it for audit trails: one shared *logrus.Logger, and a per-component
// *logrus.Entry carrying a "component" field so driver, planner, and
// adapter log lines can be filtered independently.
package logging

import "github.com/sirupsen/logrus"

var base = logrus.StandardLogger()

// SetOutput lets cmd/reconsql route every component's log lines to a
// caller-chosen writer/formatter before the first For call.
func SetOutput(l *logrus.Logger) { base = l }

// For returns a logrus.FieldLogger tagged with the given component name
// ("driver", "planner", "adapter.postgres", ...), mirroring the
// teacher's NewAuditLog(l).WithField("system", "audit").
func For(component string) logrus.FieldLogger {
	return base.WithField("component", component)
}

// Recursion logs, at Debug, a status tally for a range at a level: the
// level, start, end, and the number of blocks per status. The driver calls
// it once per pass, with the merged result.
func Recursion(log logrus.FieldLogger, level int, start, end any, tally map[string]int) {
	log.WithFields(logrus.Fields{
		"level": level,
		"start": start,
		"end":   end,
		"tally": tally,
	}).Debug("block classification")
}
