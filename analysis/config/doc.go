// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage configuration files and logging for the graph builders.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault] to get the default
configuration.

A config file is in yaml format. All the options are under the top-level options key. For example, a valid config
file is as follows:

	options:
	  log-level: 4
	  offline: true
	  export-dyck: true
	  snapshot: true
	  reports-dir: reports

When one of the export or snapshot options is set, the reports directory is created when the config is loaded. If no
reports-dir is given, a temporary directory is created next to the config file.

# Logging

[NewLogGroup] returns a [LogGroup] whose verbosity is given by the log-level option, from 1 (errors only) to 5 (trace).
*/
package config
