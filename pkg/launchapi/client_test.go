package launchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-launch-go/pkg/txcodec"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

func unsignedLaunchTx(t *testing.T, dev, mint solana.PublicKey) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransactionBuilder().
		SetFeePayer(dev).
		SetRecentBlockHash(solana.Hash{3}).
		AddInstruction(solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
			solana.NewAccountMeta(dev, true, true),
			solana.NewAccountMeta(mint, true, true),
		}, []byte{7})).
		Build()
	require.NoError(t, err)
	return tx
}

func params(dev, mint solana.PublicKey) Params {
	return Params{Name: "Gopher", Symbol: "GOPH", Description: "d", Dev: dev, Mint: mint}
}

func TestLaunchJSONResponse(t *testing.T) {
	dev, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	tx := unsignedLaunchTx(t, dev, mint)
	encoded, err := txcodec.Encode(tx, txcodec.Base58)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/launch", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Gopher", r.PostForm.Get("name"))
		assert.Equal(t, dev.String(), r.PostForm.Get("dev"))
		assert.Equal(t, mint.String(), r.PostForm.Get("mint"))
		assert.True(t, strings.HasPrefix(r.PostForm.Get("file"), "data:image/png;base64,"))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Wrapped across lines the way some deployments return it.
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "success", "tx": encoded[:20] + "\n " + encoded[20:]})
	}))
	defer srv.Close()

	p := params(dev, mint)
	p.Image = []byte("\x89PNG\r\n\x1a\n....")
	resp, err := NewClient(srv.URL+"/launch").Launch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, txcodec.Base58, resp.Encoding)
	assert.Equal(t, encoded, resp.Encoded)
	assert.Equal(t, dev, resp.Transaction.Message.AccountKeys[0])
}

func TestLaunchFallbackFields(t *testing.T) {
	dev, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	encoded, err := txcodec.Encode(unsignedLaunchTx(t, dev, mint), txcodec.Base64)
	require.NoError(t, err)

	for _, field := range []string{"encodedTransaction", "transaction", "data"} {
		t.Run(field, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"result": "success", field: encoded})
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL).Launch(context.Background(), params(dev, mint))
			require.NoError(t, err)
			assert.Equal(t, txcodec.Base64, resp.Encoding)
		})
	}
}

func TestLaunchPlainText(t *testing.T) {
	dev, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	encoded, err := txcodec.Encode(unsignedLaunchTx(t, dev, mint), txcodec.Base58)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  " + encoded + "\n"))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Launch(context.Background(), params(dev, mint))
	require.NoError(t, err)
	assert.Equal(t, encoded, resp.Encoded)
}

func TestExtractTransactionErrors(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		check       func(t *testing.T, err error)
	}{
		{"api failure", "application/json", `{"result":"rate limited"}`, func(t *testing.T, err error) {
			var apiErr *types.LaunchAPIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "rate limited", apiErr.Result)
		}},
		{"success without tx", "application/json", `{"result":"success"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, types.ErrEmptyTransaction)
		}},
		{"undefined tx", "application/json", `{"result":"success","tx":"undefined"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, types.ErrEmptyTransaction)
		}},
		{"null text", "text/plain", "null", func(t *testing.T, err error) {
			assert.ErrorIs(t, err, types.ErrEmptyTransaction)
		}},
		{"malformed json", "application/json", `{"result":`, func(t *testing.T, err error) {
			var apiErr *types.LaunchAPIError
			assert.ErrorAs(t, err, &apiErr)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractTransaction(tc.contentType, []byte(tc.body))
			tc.check(t, err)
		})
	}
}

func TestLaunchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad mint", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Launch(context.Background(), params(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()))
	var apiErr *types.LaunchAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad mint")
}

func TestLaunchValidatesInput(t *testing.T) {
	_, err := NewClient("http://unused").Launch(context.Background(), params(solana.PublicKey{}, solana.NewWallet().PublicKey()))
	assert.Error(t, err)
	_, err = NewClient("").Launch(context.Background(), params(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()))
	assert.Error(t, err)
}
