// Package summaries loads the summary history and filters it on the client.
//
// Loading follows the same split as the other components: [Browser.Begin] hands out a [Fetch], [Fetch.Run]
// performs the request, and [Browser.Apply] records the outcome. Filtering never touches the network.
package summaries
