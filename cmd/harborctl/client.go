package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// newClient builds an HTTP client carrying the actor identity headers the
// service trusts from its gateway.
func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiFlag).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	if actorFlag != "" {
		c.SetHeader("X-Actor-Id", actorFlag)
		c.SetHeader("X-Actor-Role", roleFlag)
		c.SetHeader("X-Actor-Verified", fmt.Sprintf("%t", verifiedFlag))
		c.SetHeader("X-Actor-Banned", fmt.Sprintf("%t", bannedFlag))
	}
	return c
}

// doGet issues a GET and returns the response body or an error for non-2xx.
func doGet(path string) (string, error) {
	resp, err := newClient().R().Get(path)
	if err != nil {
		return "", err
	}
	return checkResponse(resp)
}

// doPost issues a POST with an optional JSON body.
func doPost(path string, body interface{}) (string, error) {
	req := newClient().R()
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return "", err
	}
	return checkResponse(resp)
}

// doPatch issues a PATCH with a JSON body.
func doPatch(path string, body interface{}) (string, error) {
	resp, err := newClient().R().SetBody(body).Patch(path)
	if err != nil {
		return "", err
	}
	return checkResponse(resp)
}

// doDelete issues a DELETE.
func doDelete(path string) (string, error) {
	resp, err := newClient().R().Delete(path)
	if err != nil {
		return "", err
	}
	return checkResponse(resp)
}

func checkResponse(resp *resty.Response) (string, error) {
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
