// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package extremum

import (
	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
	"github.com/bnb-chain/phe-lib/protocols/comparison"
	"github.com/bnb-chain/phe-lib/protocols/multiplication"
)

// Client is the PSP side of the tournament: it answers the comparison and
// multiplication rounds and never sees the vector order.
type Client struct {
	comparisonClient     *comparison.Client
	multiplicationClient *multiplication.Client
}

func NewClient(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, params Params) (*Client, error) {
	comparisonClient, err := comparison.NewClient(paillierProvider, dgkProvider, comparison.Params{
		L:                     params.L,
		Kappa:                 params.Kappa,
		BlindingCacheCapacity: params.BlindingCacheCapacity,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		comparisonClient:     comparisonClient,
		multiplicationClient: multiplication.NewClient(paillierProvider),
	}, nil
}

// SetServer attaches the Server side, wiring both subprotocol roles.
func (c *Client) SetServer(server *Server) {
	c.comparisonClient.SetServer(server.ComparisonServer())
	c.multiplicationClient.SetServer(server.MultiplicationServer())
}

// ComparisonClient exposes the comparison role for wiring.
func (c *Client) ComparisonClient() *comparison.Client {
	return c.comparisonClient
}

// MultiplicationClient exposes the multiplication role for wiring.
func (c *Client) MultiplicationClient() *multiplication.Client {
	return c.multiplicationClient
}
