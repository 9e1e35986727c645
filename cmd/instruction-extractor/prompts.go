package main

import "fmt"

const extractorRole = "You are an assistant to help users extract the most informative instructions from the input."

func extractionRequest(site, intent string) string {
	return fmt.Sprintf("You are given a %s site and want to finish the intent '%s'. "+
		"Could you please just return the following fields in the json format "+
		"1. keywords: identify important keywords in list from the intent and "+
		"2. steps: identify steps in list to achieve the intent on the web site?", site, intent)
}
