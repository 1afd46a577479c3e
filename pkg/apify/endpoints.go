package apify

import "fmt"

// BaseURL is the default Apify API root.
const BaseURL = "https://api.apify.com"

// ActorRunsURL returns the endpoint for starting a run of an actor.
func ActorRunsURL(baseURL, actorID string) string {
	return fmt.Sprintf("%s/v2/acts/%s/runs", baseURL, actorID)
}

// RunURL returns the endpoint for polling a single run.
func RunURL(baseURL, actorID, runID string) string {
	return fmt.Sprintf("%s/v2/acts/%s/runs/%s", baseURL, actorID, runID)
}

// DatasetItemsURL returns the endpoint for reading a run's output dataset.
func DatasetItemsURL(baseURL, datasetID string) string {
	return fmt.Sprintf("%s/v2/datasets/%s/items", baseURL, datasetID)
}
