package weblog

// indexHTML is the log viewer page. It opens an EventSource on /stream
// and re-renders the full buffer on every event, auto-scrolling to the
// newest entry.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>CCC Live Logs</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            padding: 20px;
            background: #f0f2f5;
        }

        h2 {
            color: #333;
            margin-bottom: 20px;
        }

        #log-container {
            width: 700px;
            max-height: 600px;
            overflow-y: scroll;
            padding-right: 10px;
        }

        .log-entry {
            background: white;
            border-radius: 8px;
            padding: 12px 15px;
            margin-bottom: 10px;
            box-shadow: 0px 2px 5px rgba(0,0,0,0.15);
            border-left: 5px solid #4CAF50;
            font-size: 15px;
            line-height: 1.4em;
        }
    </style>
</head>

<body>
    <h2>Classroom Control Live Logs</h2>

    <div id="log-container"></div>

    <script>
        const evtSource = new EventSource("/stream");

        evtSource.onmessage = function(event) {
            const logs = JSON.parse(event.data);
            const container = document.getElementById("log-container");
            container.innerHTML = "";

            logs.forEach(function(line) {
                const div = document.createElement("div");
                div.className = "log-entry";
                div.innerText = line;
                container.appendChild(div);
            });

            container.scrollTop = container.scrollHeight;
        };
    </script>
</body>
</html>
`
