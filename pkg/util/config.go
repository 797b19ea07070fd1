// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

type InspectOptions struct {
	Path string `tag:"path"`
}

type ExportOptions struct {
	Path   string `tag:"path"`
	Format string `tag:"format"`
	Out    string `tag:"out"`
}

type Chunkctl struct {
	Inspect InspectOptions `tag:"inspect"`
	Export  ExportOptions  `tag:"export"`
}

type DebugOptions struct {
	ShowRaw           bool `tag:"showRaw"`
	EnableMaxScanRows bool `tag:"enableMaxScanRows"`
	MaxScanRows       int  `tag:"maxScanRows"`
	MaxOutputRowCount int  `tag:"maxOutputRowCount"`
	PrintResult       bool `tag:"printResult"`
	PrintPlan         bool `tag:"printPlan"`
}

type Config struct {
	Chunkctl Chunkctl     `tag:"chunkctl"`
	Debug    DebugOptions `tag:"debug"`
}
