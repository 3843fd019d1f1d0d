// Package server exposes HTTP handlers: the chat upgrade middleware, the
// registration API, health checks, and the built-in test page.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const maxRegisterBodyBytes = 1024

// newUpgrader builds the WebSocket upgrader for cfg.
func newUpgrader(cfg Config, logger *slog.Logger) *websocket.Upgrader {
	policy := newOriginPolicy(cfg.AllowedOrigins, logger)
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.check,
	}
}

// ChatMiddleware hands WebSocket upgrade requests to the hub and passes every
// other request to next untouched. The upgraded connection is served on the
// request goroutine until its session ends.
func ChatMiddleware(hub *Hub, next http.Handler) http.Handler {
	upgrader := newUpgrader(hub.Config(), hub.Logger())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.Logger().Debug("WebSocket upgrade failed", LabelAddr.L(r.RemoteAddr), LabelError.L(err))
			return
		}

		client := NewClient(conn, hub.Config(), hub.Logger())
		if err := hub.Serve(r.Context(), client); err != nil {
			hub.Logger().Debug("Connection refused", LabelAddr.L(r.RemoteAddr), LabelError.L(err))
		}
	})
}

// WebSocketFallbackHandler answers requests to the chat endpoint that are not
// upgrade requests.
func WebSocketFallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Upgrade", "websocket")
	http.Error(w, "Upgrade required. Open a WebSocket connection to this endpoint.", http.StatusUpgradeRequired)
}

// AuthHandler serves the registration API over a CredentialStore.
type AuthHandler struct {
	store  CredentialStore
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(store CredentialStore, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{store: store, logger: logger}
}

// List responds with the registered usernames as a JSON array.
func (h *AuthHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Usernames())
}

// Exists responds 204 when the username in the path is registered, 404
// otherwise.
func (h *AuthHandler) Exists(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.store.TryGet(mux.Vars(r)["username"]); ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// Register reads a JSON string username and responds with the secret to
// present in the WebSocket handshake.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, err := decodeUsername(http.MaxBytesReader(w, r.Body, maxRegisterBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "Request body must be a JSON string username")
		return
	}

	secret, err := RegisterUser(h.store, username)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		writeJSON(w, http.StatusBadRequest, "Username already in use")
		return
	case errors.Is(err, ErrInvalidUsername):
		writeJSON(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("Registration failed", LabelUsername.L(username), LabelError.L(err))
		writeJSON(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.logger.Info("User registered", LabelUsername.L(username))
	writeJSON(w, http.StatusOK, secret)
}

// decodeUsername reads a body holding exactly one JSON string.
func decodeUsername(body io.Reader) (string, error) {
	dec := json.NewDecoder(body)

	var username string
	if err := dec.Decode(&username); err != nil {
		return "", err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", errors.New("unexpected data after username")
	}
	return username, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("Error writing JSON response", LabelError.L(err))
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat relay is running!")
}

// TestPageHandler serves an HTML page that registers a username, connects to
// the chat endpoint and shows the event stream.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages { 
            border: 1px solid #ccc; 
            height: 300px; 
            padding: 10px; 
            overflow-y: scroll; 
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { 
            width: 300px; 
            padding: 5px; 
            margin-right: 10px;
        }
        button { 
            padding: 5px 15px; 
            background-color: #007cba; 
            color: white; 
            border: none; 
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { 
            margin: 10px 0; 
            padding: 5px; 
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Chat Relay Test</h1>
    
    <div id="status" class="status disconnected">Disconnected</div>
    
    <div>
        <input type="text" id="usernameInput" placeholder="Username...">
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    
    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');
        const usernameInput = document.getElementById('usernameInput');

        function addMessage(message, type = 'info') {
            const messageElement = document.createElement('div');
            messageElement.style.margin = '5px 0';
            messageElement.style.padding = '3px';
            
            if (type === 'received') {
                messageElement.style.color = 'green';
                messageElement.textContent = message;
            } else {
                messageElement.style.color = 'gray';
                messageElement.textContent = message;
                messageElement.style.fontStyle = 'italic';
            }
            
            messagesDiv.appendChild(messageElement);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            if (connected) {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
                connectButton.textContent = 'Disconnect';
            } else {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                messageInput.disabled = true;
                sendButton.disabled = true;
                connectButton.textContent = 'Connect';
            }
        }

        function renderEvent(data) {
            const evt = JSON.parse(data);
            if (evt.message !== undefined) {
                return evt.username + ': ' + evt.message;
            }
            return '*' + evt.username + (evt.left ? ' left' : ' joined') + ' the chat*';
        }

        async function connect() {
            const username = usernameInput.value.trim();
            if (!username) {
                addMessage('Pick a username first');
                return;
            }

            const resp = await fetch('/api/auth', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(username)
            });
            const body = await resp.json();
            if (!resp.ok) {
                addMessage('Registration failed: ' + body);
                return;
            }

            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            
            ws.onopen = function(event) {
                ws.send(username + ':' + body);
                addMessage('Connected as ' + username);
                updateStatus(true);
            };
            
            ws.onmessage = function(event) {
                addMessage(renderEvent(event.data), 'received');
            };
            
            ws.onclose = function(event) {
                addMessage('Connection closed');
                updateStatus(false);
                ws = null;
            };
            
            ws.onerror = function(error) {
                addMessage('Connection error: ' + error);
                updateStatus(false);
            };
        }

        function disconnect() {
            if (ws) {
                ws.close();
            }
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                disconnect();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(message);
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Default().Debug("Error writing HTML response", LabelError.L(err))
	}
}
