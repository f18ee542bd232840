package router

import (
	"net/http"

	"github.com/senyabanana/sealed-bid-service/internal/auth"
	"github.com/senyabanana/sealed-bid-service/internal/handlers"

	"github.com/go-chi/chi/v5/middleware"
)

func InitRoutes(pingHandler *handlers.PingHandler, auctionHandler *handlers.AuctionHandler, bidHandler *handlers.BidHandler, countdownHandler *handlers.CountdownHandler, verifier *auth.Verifier) http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler {
		return verifier.Middleware(h)
	}

	mux.HandleFunc("/api/ping", pingHandler.Ping)
	mux.HandleFunc("/api/auctions", auctionHandler.GetAuctions)
	mux.HandleFunc("GET /api/auctions/{auctionId}", auctionHandler.GetAuction)
	mux.HandleFunc("GET /api/auctions/{auctionId}/bids", auctionHandler.GetAuctionBids)
	mux.HandleFunc("GET /api/auctions/{auctionId}/countdown", countdownHandler.Stream)

	mux.Handle("POST /api/auctions/{auctionId}/sessions", authed(bidHandler.OpenSession))
	mux.Handle("GET /api/sessions/{sessionId}", authed(bidHandler.GetSession))
	mux.Handle("POST /api/sessions/{sessionId}/encrypt", authed(bidHandler.EncryptBid))
	mux.Handle("POST /api/sessions/{sessionId}/submit", authed(bidHandler.SubmitBid))
	mux.Handle("DELETE /api/sessions/{sessionId}", authed(bidHandler.CloseSession))

	mux.Handle("GET /api/bids/my", authed(bidHandler.GetUserBids))
	mux.HandleFunc("POST /api/bids/verify", bidHandler.VerifyBid)

	return middleware.RequestID(middleware.RealIP(middleware.Recoverer(mux)))
}
