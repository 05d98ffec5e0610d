// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package av implements a client for the Alpha Vantage REST API.
//
// Official documentation is at https://www.alphavantage.co/documentation/ .
//
// Every endpoint is a GET request to the same /query path, with the endpoint
// selected by the "function" query parameter and the user key passed as
// "apikey". Requests are built with immutable Query builders, e.g.:
//
//   q := av.Intraday("IBM", av.FiveMin).OutputSize(av.Full)
//   body, err := client.Raw(ctx, q)
//
// The HTTP layer is abstracted by the Transport interface, so tests and
// embedding applications may substitute their own. The Client itself is
// read-only after construction and safe to share across goroutines.
package av
