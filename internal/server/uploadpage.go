// uploadpage.go - Embedded HTML upload form served at GET /upload.
//
// The dashboard shows this page in an iframe. It posts the chosen file as
// multipart field "file" to POST /upload and reports progress; on success it
// notifies the embedding window via postMessage.
package server

import "net/http"

func (s *Service) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(uploadPageHTML))
}

const uploadPageHTML = `<!DOCTYPE html>
<html>
<head>
<style>
    * { box-sizing: border-box; margin: 0; padding: 0; }
    body {
        font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
        padding: 16px; background-color: #ffffff; color: #1a1a1a;
    }
    .upload-form {
        background: #ffffff; border: 2px dashed #e0e0e0; border-radius: 12px;
        padding: 24px; transition: border-color 0.3s ease;
    }
    .upload-form:hover { border-color: #2196F3; }
    .file-input-container { margin-bottom: 16px; display: flex; gap: 12px; align-items: center; }
    .file-input { display: none; }
    .file-input-label {
        background-color: #f5f5f5; color: #1a1a1a; padding: 10px 16px; border-radius: 8px;
        cursor: pointer; font-size: 14px; border: 1px solid #e0e0e0;
    }
    .file-input-label:hover { background-color: #eeeeee; border-color: #2196F3; }
    .file-name {
        color: #666; font-size: 14px; margin-left: 8px; white-space: nowrap;
        overflow: hidden; text-overflow: ellipsis; max-width: 200px;
    }
    .upload-button {
        background-color: #2196F3; color: white; border: none; padding: 10px 20px;
        border-radius: 8px; cursor: pointer; font-size: 14px; font-weight: 500; width: 120px;
    }
    .upload-button:hover { background-color: #1976D2; }
    .upload-button:disabled { background-color: #e0e0e0; cursor: not-allowed; }
    .progress {
        display: none; width: 100%; height: 6px; background-color: #f5f5f5;
        border-radius: 3px; overflow: hidden; margin: 8px 0;
    }
    .progress-bar { width: 0%; height: 100%; background-color: #2196F3; transition: width 0.2s ease; }
    #uploadStatus { font-size: 14px; color: #666; margin-top: 8px; min-height: 20px; }
    .success { color: #4CAF50; }
    .error { color: #f44336; }
</style>
</head>
<body>
<div class="upload-form">
    <form id="uploadForm" enctype="multipart/form-data">
        <div class="file-input-container">
            <input type="file" id="fileInput" name="file" class="file-input"
                   accept=".csv,.xlsx,.gz,.json" required>
            <label for="fileInput" class="file-input-label">Choose File</label>
            <span class="file-name"></span>
        </div>
        <button type="submit" class="upload-button" disabled>Upload</button>
    </form>
    <div class="progress-container">
        <div class="progress"><div class="progress-bar"></div></div>
        <div id="uploadStatus"></div>
    </div>
</div>
<script>
    const fileInput = document.getElementById('fileInput');
    const uploadButton = document.querySelector('.upload-button');
    const fileName = document.querySelector('.file-name');
    const form = document.getElementById('uploadForm');
    const progress = document.querySelector('.progress');
    const progressBar = document.querySelector('.progress-bar');
    const uploadStatus = document.getElementById('uploadStatus');

    fileInput.addEventListener('change', function(e) {
        const file = e.target.files[0];
        if (file) {
            fileName.textContent = file.name;
            uploadButton.disabled = false;
            uploadStatus.textContent = '';
            uploadStatus.className = '';
        } else {
            fileName.textContent = '';
            uploadButton.disabled = true;
        }
    });

    form.addEventListener('submit', function(e) {
        e.preventDefault();

        const file = fileInput.files[0];
        if (!file) return;

        const formData = new FormData();
        formData.append('file', file);

        progress.style.display = 'block';
        progressBar.style.width = '0%';
        uploadButton.disabled = true;
        uploadStatus.textContent = 'Preparing upload...';
        uploadStatus.className = '';

        const xhr = new XMLHttpRequest();

        xhr.upload.addEventListener('progress', function(e) {
            if (e.lengthComputable) {
                const percent = (e.loaded / e.total) * 100;
                progressBar.style.width = percent + '%';
                uploadStatus.textContent = 'Uploading: ' + Math.round(percent) + '%';
            }
        });

        xhr.addEventListener('load', function() {
            if (xhr.status === 200) {
                const result = JSON.parse(xhr.responseText);
                uploadStatus.textContent = 'Upload successful! File: ' + result.filename +
                    ' (' + result.size_mb + ' MB)';
                uploadStatus.className = 'success';
                fileInput.value = '';
                fileName.textContent = '';
                uploadButton.disabled = true;

                window.parent.postMessage({ type: 'upload_complete', data: result }, '*');
            } else {
                let detail = 'Upload failed';
                try { detail = JSON.parse(xhr.responseText).detail; } catch (err) {}
                uploadStatus.textContent = detail;
                uploadStatus.className = 'error';
                progressBar.style.backgroundColor = '#f44336';
                uploadButton.disabled = false;
            }
        });

        xhr.addEventListener('error', function() {
            uploadStatus.textContent = 'Upload failed';
            uploadStatus.className = 'error';
            progressBar.style.backgroundColor = '#f44336';
            uploadButton.disabled = false;
        });

        xhr.open('POST', '/upload', true);
        xhr.send(formData);
    });
</script>
</body>
</html>
`
